// Package mocks provides testify mocks of the store, generation and auth
// interfaces shared by service and API tests.
//
// Store mocks return themselves from WithTx so that expectations set before
// a transaction also apply inside it. NewTxDB supplies the *sql.DB that
// store.RunInTransaction needs.
package mocks
