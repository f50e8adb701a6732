/*
Package wallet serves balance reads and wallet top-ups.

Balances are read through the wallet cache and fall back to the store on a
miss. Every mutation, top-ups included, goes through the wallet lock manager
and WalletRepository.Adjust, so a top-up can never interleave with a
transfer on the same wallet.

Usage:

	svc := wallet.NewService(store, locker, cache, funding.DirectSource{}, wallet.Config{}, logger)

	// Read a balance
	w, err := svc.GetWallet(ctx, "alice@upay")

	// Credit a wallet from an external payment
	res, err := svc.TopUp(ctx, wallet.TopUpRequest{Address: "alice@upay", Amount: amount})

Error Handling:

  - PARTY_NOT_FOUND: the address is not registered
  - WALLET_NOT_FOUND: the party has no wallet
  - INVALID_ARGUMENT: the top-up amount is out of range
  - TRANSFER_FAILED: the credit could not be applied; any charge was refunded
*/
package wallet
