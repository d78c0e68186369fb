// Package gateway is the HTTP client for the gateway API: content-addressed
// store and load plus the raw transfer operations they are built from.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kachery/gateway/internal/client/worktoken"
	"github.com/kachery/gateway/internal/netx"
	"github.com/kachery/gateway/internal/server/admission"
)

// Client talks to one gateway instance, optionally authenticated with a user
// API key.
type Client struct {
	baseURL    string
	apiKey     string
	difficulty int
	http       *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		difficulty: admission.DefaultDifficulty,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
}

type initiateFileUploadRequest struct {
	ZoneName  string `json:"zoneName"`
	Size      int64  `json:"size"`
	Hash      string `json:"hash"`
	HashAlg   string `json:"hashAlg"`
	WorkToken string `json:"workToken"`
}

// InitiateResult mirrors the gateway's initiateFileUpload response.
type InitiateResult struct {
	AlreadyExists   bool   `json:"alreadyExists"`
	AlreadyPending  bool   `json:"alreadyPending"`
	SignedUploadURL string `json:"signedUploadUrl"`
	ObjectKey       string `json:"objectKey"`
}

type finalizeFileUploadRequest struct {
	ZoneName  string `json:"zoneName"`
	Size      int64  `json:"size"`
	Hash      string `json:"hash"`
	HashAlg   string `json:"hashAlg"`
	ObjectKey string `json:"objectKey,omitempty"`
}

type findFileRequest struct {
	ZoneName string `json:"zoneName"`
	Hash     string `json:"hash"`
	HashAlg  string `json:"hashAlg"`
}

// FindResult mirrors the gateway's findFile response.
type FindResult struct {
	Found     bool   `json:"found"`
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	BucketURI string `json:"bucketUri"`
	ObjectKey string `json:"objectKey"`
	CacheHit  bool   `json:"cacheHit"`
}

func (c *Client) post(ctx context.Context, op string, reqBody, respBody any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+op, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, bytes.TrimSpace(body))
	}
	if respBody == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(respBody)
}

// InitiateFileUpload mines a work token and asks the gateway for an upload URL.
func (c *Client) InitiateFileUpload(ctx context.Context, zone string, size int64, hash string) (*InitiateResult, error) {
	token, err := worktoken.Mine(ctx, hash, c.difficulty)
	if err != nil {
		return nil, err
	}
	var res InitiateResult
	err = c.post(ctx, "initiateFileUpload", initiateFileUploadRequest{
		ZoneName:  zone,
		Size:      size,
		Hash:      hash,
		HashAlg:   "sha1",
		WorkToken: token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FinalizeFileUpload reports a completed upload.
func (c *Client) FinalizeFileUpload(ctx context.Context, zone string, size int64, hash, objectKey string) error {
	return c.post(ctx, "finalizeFileUpload", finalizeFileUploadRequest{
		ZoneName:  zone,
		Size:      size,
		Hash:      hash,
		HashAlg:   "sha1",
		ObjectKey: objectKey,
	}, nil)
}

// FindFile resolves a content hash to a signed download URL.
func (c *Client) FindFile(ctx context.Context, zone, hash string) (*FindResult, error) {
	var res FindResult
	err := c.post(ctx, "findFile", findFileRequest{
		ZoneName: zone,
		Hash:     hash,
		HashAlg:  "sha1",
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Store uploads data to the zone and returns its content hash. Content that
// is already stored is not uploaded again.
func (c *Client) Store(ctx context.Context, zone string, data []byte) (string, error) {
	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])

	ini, err := c.InitiateFileUpload(ctx, zone, int64(len(data)), hash)
	if err != nil {
		return "", err
	}
	if ini.AlreadyExists {
		return hash, nil
	}

	if err := netx.UploadToPresignedURL(ctx, c.http, ini.SignedUploadURL, data); err != nil {
		return "", err
	}

	if err := c.FinalizeFileUpload(ctx, zone, int64(len(data)), hash, ini.ObjectKey); err != nil {
		return "", err
	}
	return hash, nil
}

// Load downloads the content for hash from the zone. A missing object is
// reported as found == false with a nil payload.
func (c *Client) Load(ctx context.Context, zone, hash string) ([]byte, bool, error) {
	res, err := c.FindFile(ctx, zone, hash)
	if err != nil {
		return nil, false, err
	}
	if !res.Found {
		return nil, false, nil
	}

	data, err := netx.DownloadFromPresignedURL(ctx, c.http, res.URL)
	if err != nil {
		return nil, false, err
	}

	sum := sha1.Sum(data)
	if hex.EncodeToString(sum[:]) != hash {
		return nil, false, fmt.Errorf("downloaded content does not match hash %s", hash)
	}
	return data, true, nil
}
