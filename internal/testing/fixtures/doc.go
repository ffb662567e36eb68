// Package fixtures provides test data factories and fake upstream
// providers for the Eternal AI API.
//
// # Factory Pattern
//
// Create a factory over a test store:
//
//	f := fixtures.New(tdb.Store)
//	user := f.CreateUser(t, fixtures.WithEthers(50))
//	f.CreateKarmicReport(t, user, false)
//
// # Fake Providers
//
// FakeLLM, FakeGeocoder, FakeAstrology, FakeNumerology, FakeBlobStore and
// FakeChatProxy stand in for the network clients. Each records its calls
// and can be told to fail.
package fixtures
