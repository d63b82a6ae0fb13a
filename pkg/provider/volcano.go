package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// VolcanoImageClient calls the Volcano Engine visual API with V4 request
// signing.
type VolcanoImageClient struct {
	endpoint  string
	host      string
	accessKey string
	secretKey string
	region    string
	service   string
	client    *http.Client
}

func NewVolcanoImageClient(endpoint, accessKey, secretKey, region, service string) *VolcanoImageClient {
	u, _ := url.Parse(endpoint)
	host := endpoint
	if u != nil && u.Host != "" {
		host = u.Host
	}
	return &VolcanoImageClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		host:      host,
		accessKey: accessKey,
		secretKey: secretKey,
		region:    region,
		service:   service,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type volcanoImageResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		ImageURLs []string `json:"image_urls"`
	} `json:"data"`
}

func (c *VolcanoImageClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"req_key":     "high_aes_general_v21_L",
		"prompt":      req.Prompt,
		"width":       req.Width,
		"height":      req.Height,
		"seed":        req.Seed,
		"use_sr":      req.UseSR,
		"use_pre_llm": req.UsePreLLM,
		"return_url":  true,
	})
	if err != nil {
		return "", err
	}

	query := "Action=CVProcess&Version=2022-08-31"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/?"+query, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	c.signRequest(httpReq, query, payload)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("image api status %d: %s", resp.StatusCode, string(msg))
	}
	var out volcanoImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if out.Code != 10000 || len(out.Data.ImageURLs) == 0 {
		return "", fmt.Errorf("image api error %d: %s", out.Code, out.Message)
	}
	return out.Data.ImageURLs[0], nil
}

// signRequest applies the V4 HMAC-SHA256 signature over the canonical
// request, matching the visual API's expected header set.
func (c *VolcanoImageClient) signRequest(req *http.Request, query string, payload []byte) {
	now := time.Now().UTC()
	xDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	payloadHash := sha256.Sum256(payload)
	contentSha := hex.EncodeToString(payloadHash[:])

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Host", c.host)
	req.Header.Set("X-Date", xDate)
	req.Header.Set("X-Content-Sha256", contentSha)

	signedHeaders := "content-type;host;x-content-sha256;x-date"
	canonicalHeaders := strings.Join([]string{
		"content-type:application/json",
		"host:" + c.host,
		"x-content-sha256:" + contentSha,
		"x-date:" + xDate,
	}, "\n") + "\n"

	canonicalRequest := strings.Join([]string{
		http.MethodPost, "/", query, canonicalHeaders, signedHeaders, contentSha,
	}, "\n")
	requestHash := sha256.Sum256([]byte(canonicalRequest))

	scope := strings.Join([]string{dateStamp, c.region, c.service, "request"}, "/")
	stringToSign := strings.Join([]string{
		"HMAC-SHA256", xDate, scope, hex.EncodeToString(requestHash[:]),
	}, "\n")

	kDate := hmacSHA256([]byte(c.secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, c.region)
	kService := hmacSHA256(kRegion, c.service)
	kSigning := hmacSHA256(kService, "request")
	signature := hex.EncodeToString(hmacSHA256(kSigning, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		c.accessKey, scope, signedHeaders, signature))
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}
