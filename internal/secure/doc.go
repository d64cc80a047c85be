// Package secure provides memory-safe handling of sensitive form values.
//
// This package wraps the memguard library so that a secret typed into a
// create or edit form is not kept as a plain Go string while the form is
// open. A Value is:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Protected from swapping via mlock where available
//   - Decrypted only for the moment it is placed into a request payload
//
// # Usage
//
//	var v secure.Value
//	v.Set(input)
//	defer v.Clear()
//
//	plain, err := v.Reveal()
//	if err != nil {
//	    // Handle error
//	}
//
// Formatting a Value with %s or %v always prints [REDACTED].
//
// Call memguard.Purge() (via secure.Purge) in main to wipe everything on exit.
package secure
