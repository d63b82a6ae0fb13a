// Package alipay implements the subset of the Alipay open API this backend
// needs: app-pay order strings and async notification verification, both
// RSA2 (SHA256-with-RSA) signed over sorted key=value pairs.
package alipay

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Client struct {
	appID      string
	sellerID   string
	notifyURL  string
	gatewayURL string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewClient parses the merchant private key and the Alipay public key. Keys
// may be full PEM blocks or bare base64 body as copied from the open
// platform console.
func NewClient(appID, sellerID, appPrivateKey, alipayPublicKey, notifyURL, gatewayURL string) (*Client, error) {
	priv, err := parsePrivateKey(appPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("app private key: %w", err)
	}
	pub, err := parsePublicKey(alipayPublicKey)
	if err != nil {
		return nil, fmt.Errorf("alipay public key: %w", err)
	}
	return &Client{
		appID:      appID,
		sellerID:   sellerID,
		notifyURL:  notifyURL,
		gatewayURL: gatewayURL,
		privateKey: priv,
		publicKey:  pub,
	}, nil
}

func (c *Client) AppID() string { return c.appID }

// CreateAppPayOrder builds the signed order string the mobile client hands to
// the Alipay SDK. Returns the order string and the merchant order number
// (generated when not supplied).
func (c *Client) CreateAppPayOrder(subject, body string, totalAmount decimal.Decimal, outTradeNo string) (string, string, error) {
	if outTradeNo == "" {
		outTradeNo = GenerateOutTradeNo()
	}
	bizContent, err := json.Marshal(map[string]string{
		"timeout_express": "30m",
		"total_amount":    totalAmount.StringFixed(2),
		"seller_id":       c.sellerID,
		"product_code":    "QUICK_MSECURITY_PAY",
		"body":            body,
		"subject":         subject,
		"out_trade_no":    outTradeNo,
	})
	if err != nil {
		return "", "", err
	}

	params := map[string]string{
		"app_id":      c.appID,
		"method":      "alipay.trade.app.pay",
		"charset":     "utf-8",
		"sign_type":   "RSA2",
		"timestamp":   time.Now().Format("2006-01-02 15:04:05"),
		"version":     "1.0",
		"notify_url":  c.notifyURL,
		"biz_content": string(bizContent),
	}
	sign, err := c.sign(buildSignContent(params))
	if err != nil {
		return "", "", err
	}
	params["sign"] = sign

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(pairs, "&"), outTradeNo, nil
}

// VerifyNotify checks the RSA2 signature of an async notification. sign and
// sign_type are excluded from the signed content per the gateway contract.
func (c *Client) VerifyNotify(params map[string]string) bool {
	sign := params["sign"]
	if sign == "" {
		return false
	}
	filtered := make(map[string]string, len(params))
	for k, v := range params {
		if k == "sign" || k == "sign_type" {
			continue
		}
		filtered[k] = v
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(buildSignContent(filtered)))
	return rsa.VerifyPKCS1v15(c.publicKey, crypto.SHA256, digest[:], sigBytes) == nil
}

// GenerateOutTradeNo returns timestamp + the last 8 hex chars of a UUID.
func GenerateOutTradeNo() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return time.Now().Format("20060102150405") + suffix[len(suffix)-8:]
}

func (c *Client) sign(content string) (string, error) {
	digest := sha256.Sum256([]byte(content))
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// buildSignContent joins non-empty params as k=v sorted by key ASCII order.
func buildSignContent(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

func parsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	der, err := decodeKeyBody(raw, "RSA PRIVATE KEY")
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key")
	}
	return key, nil
}

func parsePublicKey(raw string) (*rsa.PublicKey, error) {
	der, err := decodeKeyBody(raw, "PUBLIC KEY")
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		if key, err1 := x509.ParsePKCS1PublicKey(der); err1 == nil {
			return key, nil
		}
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return key, nil
}

// decodeKeyBody accepts either a PEM block or the bare base64 body.
func decodeKeyBody(raw, blockType string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if block, _ := pem.Decode([]byte(raw)); block != nil {
		return block.Bytes, nil
	}
	cleaned := strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(raw)
	for _, marker := range []string{
		"-----BEGINRSAPRIVATEKEY-----", "-----ENDRSAPRIVATEKEY-----",
		"-----BEGINPRIVATEKEY-----", "-----ENDPRIVATEKEY-----",
		"-----BEGINPUBLICKEY-----", "-----ENDPUBLICKEY-----",
	} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	der, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", blockType, err)
	}
	return der, nil
}
