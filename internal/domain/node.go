package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	// ImageKeysNodeKey identifies the node listing every referenced image key.
	ImageKeysNodeKey = "image-keys"

	imageKeysNodeType = "ImageKeys"
	nodeMediaType     = "text/html"
)

// nodeNamespace seeds deterministic node ids.
var nodeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("jamstack-cms/nodes"))

// NodeInternal mirrors the generator's internal node metadata.
type NodeInternal struct {
	Type          string `json:"type"`
	MediaType     string `json:"mediaType"`
	Content       string `json:"content"`
	ContentDigest string `json:"contentDigest"`
}

// Node is a content-addressed data node for the site generator.
type Node struct {
	ID       string       `json:"id"`
	Parent   *string      `json:"parent"`
	Children []string     `json:"children"`
	Key      string       `json:"key"`
	Data     []string     `json:"data"`
	Internal NodeInternal `json:"internal"`
}

type nodeData struct {
	Key  string   `json:"key"`
	Data []string `json:"data"`
}

// NewImageKeysNode builds the image-keys node from storage keys (images/<key>).
func NewImageKeysNode(keys []string) (Node, error) {
	if keys == nil {
		keys = []string{}
	}

	content, err := json.Marshal(nodeData{Key: ImageKeysNodeKey, Data: keys})
	if err != nil {
		return Node{}, fmt.Errorf("failed to encode node content: %w", err)
	}

	sum := sha256.Sum256(content)

	return Node{
		ID:       uuid.NewSHA1(nodeNamespace, []byte("my-data-"+ImageKeysNodeKey)).String(),
		Children: []string{},
		Key:      ImageKeysNodeKey,
		Data:     keys,
		Internal: NodeInternal{
			Type:          imageKeysNodeType,
			MediaType:     nodeMediaType,
			Content:       string(content),
			ContentDigest: hex.EncodeToString(sum[:]),
		},
	}, nil
}
