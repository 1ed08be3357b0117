package namehash

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// Root is the parent of all top-level namespaces.
var Root = interfaces.TokenID{}

// Child derives the identifier of label under parent:
//
//	id = keccak256(parent ++ keccak256(label))
//
// Empty labels are structurally permitted; minting paths that require a
// label enforce that separately.
func Child(parent interfaces.TokenID, label string) interfaces.TokenID {
	labelHash := crypto.Keccak256([]byte(label))
	return crypto.Keccak256Hash(parent.Bytes(), labelHash)
}

// Name derives the identifier of a dotted name ("alpha.crypto") by folding
// Child over the labels right to left, starting at Root.
func Name(name string) interfaces.TokenID {
	if name == "" {
		return Root
	}

	labels := strings.Split(name, ".")
	id := Root
	for i := len(labels) - 1; i >= 0; i-- {
		id = Child(id, labels[i])
	}
	return id
}
