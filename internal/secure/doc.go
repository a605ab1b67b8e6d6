// Package secure keeps store credentials in protected memory.
//
// A Token wraps the credential in a memguard enclave: encrypted at rest in
// process memory (XSalsa20Poly1305), mlocked against swapping where the
// platform allows it, and fenced by guard pages. Core dumps and swap never
// see the plaintext.
//
// Usage, typically once per store request:
//
//	tok := secure.NewToken(material)
//	defer tok.Destroy()
//
//	locked, err := tok.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	req.Header.Set("X-Vault-Token", locked.String())
//
// On Linux, mlock needs an adequate RLIMIT_MEMLOCK; when it is
// unavailable memguard degrades to ordinary memory. None of this defends
// against an attacker who already owns the process or the hardware.
package secure
