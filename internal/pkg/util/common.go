package util

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	PostRetry    = 3
	RetryBackoff = time.Second
)

// GenSignCode signs form values with key: md5 over the sorted k=v pairs, excluding
// the s parameter, followed by the key.
func GenSignCode(form url.Values, key string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		if k == "s" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(form.Get(k))
	}
	sb.WriteString(key)

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// BodySign is the signature PostSigned sends in the sign header.
func BodySign(body string, ts int64, secret string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s%d%s", body, ts, secret)))
	return hex.EncodeToString(sum[:])
}

// PostSigned posts a json body signed with secret, retrying on transport errors
// and non 200 responses.
func PostSigned(ctx context.Context, client *http.Client, url, secret, body string) (err error) {
	if client == nil {
		client = http.DefaultClient
	}

	var rsp *http.Response
	for i := 1; i <= PostRetry; i++ {
		var nowTime = time.Now().Unix()
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
		if err != nil {
			return errors.Wrapf(err, "new request url %s", url)
		}

		req.Header.Set("time", fmt.Sprintf("%d", nowTime))
		req.Header.Set("sign", BodySign(body, nowTime, secret))
		req.Header.Set("content-type", "application/json")

		rsp, err = client.Do(req)
		if err == nil && rsp.StatusCode == http.StatusOK {
			rsp.Body.Close()
			return nil
		}
		if i == PostRetry {
			break
		}
		if rsp != nil {
			rsp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "post canceled")
		case <-time.After(RetryBackoff * time.Duration(i)):
		}
	}
	if err != nil {
		return errors.Wrapf(err, "post [%s]", url)
	}

	rspBody, _ := ioutil.ReadAll(rsp.Body)
	rsp.Body.Close()

	type Result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	var res Result
	_ = json.Unmarshal(rspBody, &res)
	return errors.Wrap(fmt.Errorf("post [%s] response code is [%d]", url, rsp.StatusCode), res.Msg)
}
