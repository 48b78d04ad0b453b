// Package flash implements one-shot notification messages on top of shadow
// sessions.
//
// Messages queued during one request are shown on the next and then
// discarded. The queue lives under the "_flashes" session field, which the
// shadow session routes to the server-side record by default: flash content
// never travels in the client cookie, only the opaque record key does.
//
//	// Request A: queue a notification.
//	_ = flash.AddWithCategory(ctx, sess, flash.CategorySuccess, "Profile saved")
//
//	// Request B: consume the queue.
//	msgs, _ := flash.Messages(ctx, sess)
package flash
