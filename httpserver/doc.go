/*
Package httpserver serves a read-only HTTP API over inventory registries.

The server never signs anything; it derives registry addresses locally and
loads accounts from a Solana RPC node through a RegistryReader.

# Endpoints

  - GET /api/v1/registry/{authority}/address - registry PDA and bump
  - GET /api/v1/registry/{authority} - decoded registry, 404 if not initialized
  - GET /api/v1/registry/{authority}/slots/{class} - slots of one class, 400 on an invalid class
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Mark server as not ready
  - GET /undrain - Mark server as ready

Request counts and registry lookup outcomes are exported on a separate
Prometheus listener when MetricsAddr is set.

# Example Usage

	reader := inventory.NewReader(rpcClient, inventory.DefaultProgramID)
	handler := httpserver.NewHandler(reader, logger)

	server, err := httpserver.New(&api.HTTPServerConfig{
		ListenAddr:               ":8080",
		MetricsAddr:              ":8090",
		Log:                      logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		RequestTimeout:           10 * time.Second,
	}, handler)
	if err != nil {
		return err
	}
	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
