// Package fakes provides test doubles for the record store and the OS keyring.
//
// The fakes are hand-written rather than generated so tests control exactly
// what each call returns, including partial batch failures.
//
// Usage:
//
//	store := fakes.NewFakeRecordStore().
//	    WithRecord("apper_function", recordstore.Record{"Name": "resize-image"})
//	client := resources.NewFunctionClient(store, "", resources.Options{})
//	res := client.List(ctx)
//
//	kr := fakes.NewFakeKeyring().WithSecret("fnctl", "prj_1", "pk_live_123")
//	cr := &config.Credentials{Keyring: kr}
package fakes
