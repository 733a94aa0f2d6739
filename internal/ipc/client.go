package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to a running daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests daemon startup.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Clipcast.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Clipcast.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Clipcast.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload asks the daemon to re-read its configuration and reconcile.
func (c *Client) Reload() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.client.Call("Clipcast.Reload", ReloadRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns an account's items, optionally filtered by status.
func (c *Client) QueueList(account string, statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	req := QueueListRequest{Account: account, Statuses: statuses}
	if err := c.client.Call("Clipcast.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueAdd registers a local file as a pending item.
func (c *Client) QueueAdd(account, sourcePath string) (*QueueAddResponse, error) {
	var resp QueueAddResponse
	req := QueueAddRequest{Account: account, SourcePath: sourcePath}
	if err := c.client.Call("Clipcast.QueueAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns daemon log lines from the given offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Clipcast.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Plan runs a one-shot planning pass for an account.
func (c *Client) Plan(account string) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.client.Call("Clipcast.Plan", PlanRequest{Account: account}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
