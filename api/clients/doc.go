/*
Package clients provides a typed client for the registry API served by
package httpserver.

	client := clients.NewRegistryClient("http://localhost:8080")
	resp, err := client.Registry(ctx, authority)
	if errors.Is(err, clients.ErrNotFound) {
		// registry was never initialized
	}
*/
package clients
