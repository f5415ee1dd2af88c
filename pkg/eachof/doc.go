// Package eachof adds an asynchronous, sequential "each of" iteration
// capability to template hosts: an application, a view collection, a
// generic collection or a list.
//
// A Plugin inspects the host's flags once, at install time, and returns a
// bound Capability for the matching role. The host itself is not modified
// apart from recording the plugin in its registration set, so installing
// twice is a no-op and leaf hosts (single items or views) get nothing.
//
// # Basic Usage
//
//	plugin := eachof.New[*core.Item](eachof.WithLogger(logger))
//
//	c, err := plugin.Install(site)
//	if err != nil {
//	    return err
//	}
//
//	app := c.(*eachof.App[*core.Item])
//	app.EachOf("pages", func(page *core.Item, key string, next eachof.Next) {
//	    // do some view stuff, then
//	    next(nil)
//	}, func(err error) {
//	    // called exactly once
//	})
//
// # Contract
//
// Every variant drives EachOf: entries are visited in insertion order, one
// at a time, and the next entry starts only after the iterator calls next.
// The first error stops the iteration and is passed to the callback as is.
// The callback is called exactly once. A nil callback is a programming error
// and panics with a *UsageError; every other failure goes to the callback.
package eachof
