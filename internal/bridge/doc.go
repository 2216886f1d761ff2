// Package bridge reads playback state out of the embedded player page.
//
// The desktop shell exposes its renderer through the Chrome DevTools Protocol.
// [DevTools] discovers the player page, evaluates read-only expressions in it and
// relays clicks on the seek control through a page binding.
//
// [Sampler] runs the fixed probe expression and decodes its JSON string result
// into a [models.Snapshot].
package bridge
