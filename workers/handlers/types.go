package handlers

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

type APIChainState struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ChainID int64  `json:"chainId"`
	Watches string `json:"watches"`
}

type APIStateResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Relayer string          `json:"relayer,omitempty"`
	Chains  []APIChainState `json:"chains,omitempty"`
}

type APICheckpointResponse struct {
	Chain string `json:"chain"`
	Kind  string `json:"kind"`
	// nil until the first cycle on this chain completes
	Block *uint64 `json:"block"`
}

type APIBalanceResponse struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	Wei     string `json:"wei"`
	Ether   string `json:"ether"`
}
