// Package server hosts the local HTTP surface: the broadcast websocket, a health report and the
// artwork service OAuth callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it on
// go-chi with request IDs, panic recovery and [RequestLogger] installed.
//
// # Handler Interface
//
// Custom handlers implement [Handler], which adds the list of paths a handler serves so that
// packages such as broadcast can be mounted without knowing about the router.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code through a
// [TokenExchanger] and reports the outcome once through [OAuthHandler.Result]. Later callbacks
// are rejected.
//
// [Serve] runs an [http.Server] until its context ends and shuts it down gracefully.
package server
