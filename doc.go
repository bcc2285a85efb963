// Package overledger and its sub-packages implement a multi-ledger transaction client for the Overledger gateway.
/*
Given one account per supported ledger (DLT), the client builds, validates and signs ledger native transactions and
submits them to a single upstream gateway that fans them out to the underlying ledgers.

Architecture

Every ledger is implemented by an adapter (packages lib/dlt/ripple, lib/dlt/ethereum and lib/dlt/bitcoin) that
satisfies the same capability contract (lib/dlt/types.Adapter): account creation and set up, transaction signing,
api call wrapping, balances and faucet funding. The shared behaviour lives in lib/dlt/base. The registry (package
lib/dlt) maps the DLT names found in the configuration to adapter constructors and decodes the per ledger
transaction options.

The SDK type of this package is the orchestrator. It loads one adapter per configured DLT, signs a batch of requests
spanning several ledgers concurrently and submits the signed transactions in one envelope:

	{ "mappId": "<id>", "dltData": [ { "dlt": "ripple", "signedTransaction": "1200..." } ] }

The HTTP transport (package lib/gateway) authenticates every request with the bearer credential "<mappId>:<bpiKey>".
Read-only lookups, including the search endpoints (package lib/search), return gateway error replies as responses.

Services

Two microservices are built on top of the SDK:

1) a wallet microservice (package wallet, cmd/wallet) exposing a RESTful API to create accounts, read balances,
 sign and submit transactions. Every submission is journaled in a database (package lib/store, MongoDB,
 PostgreSQL or process memory) and announced on a message broker (package lib/msg, AMQP or process memory).

2) a tracker microservice (package tracker, cmd/tracker) that polls the gateway for the status of pending
 submissions, updates the journal and publishes status events that wallets consume.

Both services read a JSON configuration file with environment overrides (package lib/config) and can expose
Prometheus metrics by setting the flag "-m" at startup. The command ovl (cmd/ovl) uses the same configuration to
create accounts, sign and submit batches from the command line.
*/
package overledger
