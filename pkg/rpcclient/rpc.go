package rpcclient

import (
	"context"

	"github.com/nspcc-dev/starkroot/pkg/starkrpc"
	"github.com/nspcc-dev/starkroot/pkg/starkrpc/result"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// BlockNumber returns the number of the most recent accepted block.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var resp uint64
	if err := c.performRequest(ctx, "starknet_blockNumber", nil, &resp); err != nil {
		return 0, err
	}
	return resp, nil
}

// ChainID returns the chain identifier of the node, it's an ASCII-encoded
// short string like "SN_MAIN".
func (c *Client) ChainID(ctx context.Context) (util.Felt, error) {
	var resp util.Felt
	if err := c.performRequest(ctx, "starknet_chainId", nil, &resp); err != nil {
		return util.Felt{}, err
	}
	return resp, nil
}

// GetStateUpdate returns state changes made by the block with the given
// number.
func (c *Client) GetStateUpdate(ctx context.Context, block uint64) (*result.StateUpdate, error) {
	var (
		params = []interface{}{starkrpc.BlockNumber(block)}
		resp   = new(result.StateUpdate)
	)
	if err := c.performRequest(ctx, "starknet_getStateUpdate", params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetStorageAt returns the value of the contract storage slot at the given
// block.
func (c *Client) GetStorageAt(ctx context.Context, contract, key util.Felt, block uint64) (util.Felt, error) {
	var (
		params = []interface{}{contract, key, starkrpc.BlockNumber(block)}
		resp   util.Felt
	)
	if err := c.performRequest(ctx, "starknet_getStorageAt", params, &resp); err != nil {
		return util.Felt{}, err
	}
	return resp, nil
}
