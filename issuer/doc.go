// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package issuer mints voter credentials.

IssueBatch validates the whole roster first, so a single bad address
aborts before any key exists. The roster is then shuffled with crypto/rand
so the order credentials land in the registry says nothing about the
order voters were listed in.

For each voter the issuer mints a credential, hands it to the Notifier,
revokes the voter's previous credential if any, registers the new public
key and appends to the issuance log. In production mode a failed delivery
stops there and nothing is registered.

	iss, err := issuer.New(issuer.Config{
		MasterSecret: cfg.MasterSecret,
		Credentials:  st,
		Log:          st,
	})
	res, err := iss.IssueBatch(ctx, voters, issuer.BatchOptions{})

The private key leaves the issuer only through the Notifier.
*/
package issuer
