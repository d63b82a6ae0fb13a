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
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testClient builds a client whose counterparty key pair we hold, so
// notifications can be signed the way the gateway would sign them.
func testClient(t *testing.T) (*Client, *rsa.PrivateKey) {
	t.Helper()
	merchantKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	gatewayKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(merchantKey),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&gatewayKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	c, err := NewClient("2021000000000000", "2088000000000000",
		string(privPEM), string(pubPEM),
		"https://example.com/notify", "https://openapi.alipay.com/gateway.do")
	require.NoError(t, err)
	return c, gatewayKey
}

func signAsGateway(t *testing.T, key *rsa.PrivateKey, params map[string]string) string {
	t.Helper()
	digest := sha256.Sum256([]byte(buildSignContent(params)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func TestNewClientAcceptsBareBase64Keys(t *testing.T) {
	merchantKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	gatewayKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&gatewayKey.PublicKey)
	require.NoError(t, err)

	// Keys as copied from the console: base64 body, no PEM armor.
	priv := base64.StdEncoding.EncodeToString(x509.MarshalPKCS1PrivateKey(merchantKey))
	pub := base64.StdEncoding.EncodeToString(pubDER)

	_, err = NewClient("app", "seller", priv, pub, "", "")
	require.NoError(t, err)
}

func TestNewClientRejectsGarbage(t *testing.T) {
	_, err := NewClient("app", "seller", "not-a-key!!", "also-not-a-key!!", "", "")
	require.Error(t, err)
}

func TestCreateAppPayOrder(t *testing.T) {
	c, _ := testClient(t)

	orderString, outTradeNo, err := c.CreateAppPayOrder("100 points", "points pack", decimal.RequireFromString("9.9"), "20260829X001")
	require.NoError(t, err)
	require.Equal(t, "20260829X001", outTradeNo)

	values, err := url.ParseQuery(orderString)
	require.NoError(t, err)
	require.Equal(t, "2021000000000000", values.Get("app_id"))
	require.Equal(t, "alipay.trade.app.pay", values.Get("method"))
	require.Equal(t, "RSA2", values.Get("sign_type"))
	require.NotEmpty(t, values.Get("sign"))

	var biz map[string]string
	require.NoError(t, json.Unmarshal([]byte(values.Get("biz_content")), &biz))
	require.Equal(t, "9.90", biz["total_amount"])
	require.Equal(t, "20260829X001", biz["out_trade_no"])
	require.Equal(t, "QUICK_MSECURITY_PAY", biz["product_code"])
	require.Equal(t, "2088000000000000", biz["seller_id"])
}

func TestCreateAppPayOrderGeneratesOutTradeNo(t *testing.T) {
	c, _ := testClient(t)
	_, a, err := c.CreateAppPayOrder("s", "b", decimal.NewFromInt(1), "")
	require.NoError(t, err)
	_, b, err := c.CreateAppPayOrder("s", "b", decimal.NewFromInt(1), "")
	require.NoError(t, err)
	require.Len(t, a, 22)
	require.NotEqual(t, a, b)
}

func TestVerifyNotify(t *testing.T) {
	c, gatewayKey := testClient(t)

	params := map[string]string{
		"notify_type":  "trade_status_sync",
		"trade_no":     "ALI123",
		"out_trade_no": "20260829X002",
		"trade_status": "TRADE_SUCCESS",
		"total_amount": "9.90",
		// Empty values stay out of the sign content.
		"passback_params": "",
	}
	params["sign"] = signAsGateway(t, gatewayKey, params)
	params["sign_type"] = "RSA2"

	require.True(t, c.VerifyNotify(params))

	// Any tampered field breaks the signature.
	params["total_amount"] = "999.00"
	require.False(t, c.VerifyNotify(params))
	params["total_amount"] = "9.90"
	require.True(t, c.VerifyNotify(params))

	params["sign"] = "bm90IGEgc2lnbmF0dXJl"
	require.False(t, c.VerifyNotify(params))
	delete(params, "sign")
	require.False(t, c.VerifyNotify(params))
}

func TestBuildSignContent(t *testing.T) {
	content := buildSignContent(map[string]string{
		"b":     "2",
		"a":     "1",
		"empty": "",
		"c":     "3",
	})
	require.Equal(t, "a=1&b=2&c=3", content)
	require.False(t, strings.Contains(content, "empty"))
}
