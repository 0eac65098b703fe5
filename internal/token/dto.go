package token

import "github.com/ethereum/go-ethereum/common/hexutil"

// WrapRequestRequest captures the data needed to request an entropy-backed wrap.
type WrapRequestRequest struct {
	// Tag is an opaque 32-byte correlation value chosen by the caller and
	// passed through to the entropy source uninterpreted.
	Tag     string `json:"tag"`
	PaidFee int64  `json:"paid_fee"`
}

// WrapRequestResponse returns the correlation identifier issued by the source.
type WrapRequestResponse struct {
	RequestID uint64 `json:"request_id"`
}

// CompleteWrapRequest carries the externally encrypted amount and its proof.
type CompleteWrapRequest struct {
	Ciphertext hexutil.Bytes `json:"ciphertext"`
	Proof      hexutil.Bytes `json:"proof"`
}

// CompleteWrapResponse reports the applied wrap transition.
type CompleteWrapResponse struct {
	RequestID     uint64 `json:"request_id"`
	MintedAmount  int64  `json:"minted_amount"`
	PublicBalance int64  `json:"public_balance"`
	Handle        string `json:"handle"`
}

// UnwrapRequest captures an unwrap: public amount out, encrypted amount in.
type UnwrapRequest struct {
	Amount     int64         `json:"amount"`
	Ciphertext hexutil.Bytes `json:"ciphertext"`
	Proof      hexutil.Bytes `json:"proof"`
}

// UnwrapResponse reports the applied unwrap transition.
type UnwrapResponse struct {
	PublicAmount  int64  `json:"public_amount"`
	PublicBalance int64  `json:"public_balance"`
	Handle        string `json:"handle"`
}

// InfoResponse exposes the construction-time token metadata.
type InfoResponse struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	EntropyOracle string `json:"entropy_oracle"`
	RequestCount  uint64 `json:"request_count"`
}

// PendingRequestResponse describes a pending wrap request.
type PendingRequestResponse struct {
	RequestID uint64 `json:"request_id"`
	Requester string `json:"requester"`
	Fulfilled bool   `json:"fulfilled"`
	CreatedAt string `json:"created_at"`
}

// BalanceResponse exposes the dual balance of an address. The confidential
// side is a handle only; the plaintext never leaves the engine.
type BalanceResponse struct {
	Address            string `json:"address"`
	PublicBalance      int64  `json:"public_balance"`
	ConfidentialHandle string `json:"confidential_handle,omitempty"`
}
