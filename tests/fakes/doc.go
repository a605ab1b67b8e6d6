// Package fakes provides test doubles for the store interfaces.
//
// FakeStore implements store.Client in memory. The remaining fakes stand
// in for the cloud SDK clients the backends talk to, so backends can be
// unit tested without real service dependencies. All fakes are working
// in-memory implementations with fluent builder methods, manually written
// (not generated) to give precise control over test behavior, which keeps
// tests fast and free of network or Docker dependencies.
//
// Usage:
//
//	fake := fakes.NewFakeSecretsManagerClient().
//	    AddBucket("vaultops/gafaelfawr", map[string]*string{
//	        "database-password": fakes.Ptr("s3cr3t"),
//	    })
//	st, err := stores.NewSecretsManagerStore(env, logger,
//	    stores.WithSecretsManagerClient(fake))
//	// Test store methods...
package fakes
