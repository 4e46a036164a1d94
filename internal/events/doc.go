// Package events provides a small in-process publish/subscribe mechanism.
//
// Services emit events such as "item.created" or "session.completed"
// without knowing who consumes them; handlers registered on the emitter
// react to them, for example by updating progress or submitting a
// background task.
package events
