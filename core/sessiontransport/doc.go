// Package sessiontransport glues shadow sessions into the HTTP request
// lifecycle.
//
// At request start the coordinator asks the cookie codec to decode the
// request into a session, forces it non-permanent, and binds its shadow
// record to the Redis client with the effective TTL. At request end it asks
// the codec to re-sign the cookie onto the response and tells the record to
// refresh its store-side TTL if it was accessed.
//
// # Usage
//
//	codec, _ := sessioncookie.New([]string{secret})
//	transport := sessiontransport.NewCookie(codec, redisClient, "__session", 31*24*time.Hour)
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		sess, _ := sessiontransport.FromContext(r.Context())
//		_ = sess.Set(r.Context(), "theme", "dark")            // cookie-side
//		_ = sess.Shadow.Set(r.Context(), "cart", cartItems)   // store-side
//	})
//
//	http.ListenAndServe(":8080", transport.Middleware(mux))
//
// The middleware defers the save until the handler writes its first response
// byte, because Set-Cookie headers cannot follow the body.
package sessiontransport
