package deployer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrInvalidArtifact is returned when an artifact cannot be parsed or
	// does not describe the requested contract.
	ErrInvalidArtifact = errors.New("invalid contract artifact")

	// ErrEmptyBytecode is returned for interfaces and abstract contracts,
	// which compile to no creation code.
	ErrEmptyBytecode = errors.New("artifact has no bytecode")

	// ErrUnlinkedBytecode is returned when the bytecode still holds library
	// placeholders.
	ErrUnlinkedBytecode = errors.New("artifact bytecode has unlinked libraries")
)

// Artifact is the JSON document Hardhat writes for each compiled contract.
type Artifact struct {
	Format           string          `json:"_format"`
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`
}

// ContractFactory holds everything needed to deploy one contract.
type ContractFactory struct {
	Name             string
	SourceName       string
	ABI              abi.ABI
	Bytecode         []byte
	DeployedBytecode []byte
}

// NewContractFactory parses a Hardhat artifact.
func NewContractFactory(data []byte) (*ContractFactory, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if artifact.ContractName == "" {
		return nil, fmt.Errorf("%w: missing contractName", ErrInvalidArtifact)
	}

	abiJSON := artifact.ABI
	if len(abiJSON) == 0 {
		abiJSON = json.RawMessage("[]")
	}
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: abi: %v", ErrInvalidArtifact, err)
	}

	if strings.Contains(artifact.Bytecode, "__$") {
		return nil, fmt.Errorf("%w: %s", ErrUnlinkedBytecode, artifact.ContractName)
	}
	bytecode, err := decodeHex(artifact.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: bytecode: %v", ErrInvalidArtifact, err)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBytecode, artifact.ContractName)
	}

	var deployed []byte
	if !strings.Contains(artifact.DeployedBytecode, "__$") {
		deployed, err = decodeHex(artifact.DeployedBytecode)
		if err != nil {
			return nil, fmt.Errorf("%w: deployedBytecode: %v", ErrInvalidArtifact, err)
		}
	}

	return &ContractFactory{
		Name:             artifact.ContractName,
		SourceName:       artifact.SourceName,
		ABI:              parsed,
		Bytecode:         bytecode,
		DeployedBytecode: deployed,
	}, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
