package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/graphprod/pkg/graph"
	pkgio "github.com/matzehuels/graphprod/pkg/io"
)

// hashKey builds "prefix:sha256(json(parts))".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashGraph returns the hash of g's node-link JSON together with that JSON.
func HashGraph(g *graph.Graph) (string, []byte, error) {
	data, err := pkgio.MarshalGraph(g)
	if err != nil {
		return "", nil, err
	}
	return Hash(data), data, nil
}
