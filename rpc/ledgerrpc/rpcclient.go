package ledgerrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cfit-project/cfit-ledger/rpc"
)

type RpcClient struct {
	NodeAddress string

	// Username and Password are sent with Basic Auth when Username is not empty
	Username string
	Password string

	Client *http.Client
}

func NewRpcClient(addr string) *RpcClient {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &RpcClient{
		NodeAddress: addr,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Request calls method and decodes its result into output. Ledger errors returned by the node are
// returned as *RemoteError.
func (r *RpcClient) Request(method string, params any, output any) error {
	body := rpc.RequestOut{
		JsonRpc: "2.0",
		Method:  method,
		Params:  params,
		Id:      0,
	}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", r.NodeAddress, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Username != "" {
		req.SetBasicAuth(r.Username, r.Password)
	}

	res, err := r.Client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	dat, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	out := rpc.ResponseIn{}

	err = json.Unmarshal(dat, &out)
	if err != nil {
		return fmt.Errorf("invalid response (status %d): %w", res.StatusCode, err)
	}

	if out.Error != nil {
		return fromRpcError(out.Error)
	}
	if len(out.Result) == 0 {
		return errors.New("response has no result")
	}

	return json.Unmarshal(out.Result, output)
}
