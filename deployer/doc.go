// Package deployer deploys compiled EVM contracts from Hardhat artifacts.
//
// An ArtifactResolver finds a contract's artifact by name in any storage
// backend (a local Hardhat project, an S3 bucket, IPFS or a GitHub
// repository) and turns it into a ContractFactory. ResolveSigner loads the
// deploying account from a hex key, an encrypted keystore or a key
// backend such as Vault. Deployer.Deploy then submits the creation
// transaction and blocks until the contract code is on chain.
//
//	backend, _ := storage.NewFileBackend("./contracts", log)
//	factory, err := deployer.NewArtifactResolver(backend, log).Factory(ctx, "NitroLegacyInventory")
//	if err != nil {
//	    return err
//	}
//	key, err := deployer.ResolveSigner(ctx, deployer.SignerConfig{PrivateKey: os.Getenv("PRIVATE_KEY")})
//	if err != nil {
//	    return err
//	}
//	client, _ := ethclient.DialContext(ctx, rpcURL)
//	deployment, err := deployer.NewDeployer(client, key, log).Deploy(ctx, factory)
//
// Deploy never retries: a failed submission or a creation that leaves no
// code returns ErrDeploymentFailed.
package deployer
