package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hierreg/naming-registry-backend/forwarder"
	"github.com/hierreg/naming-registry-backend/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes API requests for the registry backend.
type Handler struct {
	reader  interfaces.ProxyReader
	fwd     *forwarder.Forwarder
	legacy  *forwarder.Legacy
	manager interfaces.MintingManager
	store   interfaces.MetadataBackend
	log     *slog.Logger
}

// NewHandler creates a handler over the read and submission surfaces. The
// metadata store may be nil for deployments without one.
func NewHandler(reader interfaces.ProxyReader, fwd *forwarder.Forwarder, legacy *forwarder.Legacy, manager interfaces.MintingManager, store interfaces.MetadataBackend, log *slog.Logger) *Handler {
	return &Handler{
		reader:  reader,
		fwd:     fwd,
		legacy:  legacy,
		manager: manager,
		store:   store,
		log:     log,
	}
}

type tokenInfoResponse struct {
	TokenID  common.Hash    `json:"tokenId"`
	Owner    common.Address `json:"owner"`
	Resolver common.Address `json:"resolver"`
	Registry common.Address `json:"registry"`
	Nonce    uint64         `json:"nonce"`
}

// HandleTokenInfo serves GET /api/v1/tokens/{token_id}.
func (h *Handler) HandleTokenInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseTokenID(w, r)
	if !ok {
		return
	}

	registryAddr := h.reader.RegistryOf(id)
	if registryAddr == (common.Address{}) {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, tokenInfoResponse{
		TokenID:  id,
		Owner:    h.reader.OwnerOf(id),
		Resolver: h.reader.ResolverOf(id),
		Registry: registryAddr,
		Nonce:    h.fwd.NonceOf(id),
	})
}

type recordsResponse struct {
	TokenID  common.Hash       `json:"tokenId"`
	Owner    common.Address    `json:"owner"`
	Resolver common.Address    `json:"resolver"`
	Records  map[string]string `json:"records"`
}

// HandleRecords serves GET /api/v1/tokens/{token_id}/records?key=a&key=b.
func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseTokenID(w, r)
	if !ok {
		return
	}
	if h.reader.RegistryOf(id) == (common.Address{}) {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}

	keys := r.URL.Query()["key"]
	resolver, owner, values := h.reader.GetData(keys, id)

	records := make(map[string]string, len(keys))
	for i, key := range keys {
		records[key] = values[i]
	}

	h.writeJSON(w, recordsResponse{TokenID: id, Owner: owner, Resolver: resolver, Records: records})
}

// HandleBalance serves GET /api/v1/accounts/{address}/balance, summed
// across both registry generations.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	addrHex := r.PathValue("address")
	if !common.IsHexAddress(addrHex) {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return
	}
	addr := common.HexToAddress(addrHex)

	h.writeJSON(w, map[string]interface{}{
		"address": addr,
		"balance": h.reader.BalanceOf(addr),
	})
}

// HandleNonce serves GET /api/v1/nonces/{key}. The key is a 32-byte hex
// token id or a 20-byte hex address, which is mapped to its address-scoped
// counter.
func (h *Handler) HandleNonce(w http.ResponseWriter, r *http.Request) {
	keyHex := r.PathValue("key")

	var key interfaces.NonceKey
	switch {
	case common.IsHexAddress(keyHex):
		key = interfaces.AddressNonceKey(common.HexToAddress(keyHex))
	case len(common.FromHex(keyHex)) == common.HashLength:
		key = common.HexToHash(keyHex)
	default:
		http.Error(w, "invalid nonce key", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"key":   key,
		"nonce": h.fwd.NonceOf(key),
	})
}

type forwardRequestBody struct {
	From      common.Address `json:"from"`
	Gas       uint64         `json:"gas"`
	TokenID   common.Hash    `json:"tokenId"`
	Nonce     uint64         `json:"nonce"`
	Data      hexutil.Bytes  `json:"data"`
	Signature hexutil.Bytes  `json:"signature"`
}

type executionResponse struct {
	Success    bool          `json:"success"`
	ReturnData hexutil.Bytes `json:"returnData,omitempty"`
}

// HandleForward serves POST /api/v1/forward: a structured signed request
// for the generic forwarder.
func (h *Handler) HandleForward(w http.ResponseWriter, r *http.Request) {
	var body forwardRequestBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	req := interfaces.ForwardRequest{
		From:    body.From,
		Gas:     body.Gas,
		TokenID: body.TokenID,
		Nonce:   body.Nonce,
		Data:    body.Data,
	}

	success, ret, err := h.fwd.Execute(req, body.Signature)
	if err != nil {
		h.writeVerificationError(w, err)
		return
	}
	h.writeJSON(w, executionResponse{Success: success, ReturnData: ret})
}

type legacyRequestBody struct {
	Op        string        `json:"op"`
	From      common.Address `json:"from,omitempty"`
	To        common.Address `json:"to,omitempty"`
	TokenID   common.Hash   `json:"tokenId"`
	Key       string        `json:"key,omitempty"`
	Value     string        `json:"value,omitempty"`
	Keys      []string      `json:"keys,omitempty"`
	Values    []string      `json:"values,omitempty"`
	Data      hexutil.Bytes `json:"data,omitempty"`
	Signature hexutil.Bytes `json:"signature"`
}

// HandleLegacy serves POST /api/v1/legacy: one of the per-operation signed
// entry points of the backward-compatible scheme, selected by "op".
func (h *Handler) HandleLegacy(w http.ResponseWriter, r *http.Request) {
	var body legacyRequestBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	var err error
	switch body.Op {
	case "transferFrom":
		err = h.legacy.TransferFromFor(body.From, body.To, body.TokenID, body.Signature)
	case "safeTransferFrom":
		if len(body.Data) > 0 {
			err = h.legacy.SafeTransferFromWithDataFor(body.From, body.To, body.TokenID, body.Data, body.Signature)
		} else {
			err = h.legacy.SafeTransferFromFor(body.From, body.To, body.TokenID, body.Signature)
		}
	case "burn":
		err = h.legacy.BurnFor(body.TokenID, body.Signature)
	case "reset":
		err = h.legacy.ResetFor(body.TokenID, body.Signature)
	case "set":
		err = h.legacy.SetFor(body.Key, body.Value, body.TokenID, body.Signature)
	case "setMany":
		err = h.legacy.SetManyFor(body.Keys, body.Values, body.TokenID, body.Signature)
	case "reconfigure":
		err = h.legacy.ReconfigureFor(body.Keys, body.Values, body.TokenID, body.Signature)
	default:
		http.Error(w, fmt.Sprintf("unknown op %q", body.Op), http.StatusBadRequest)
		return
	}

	if err != nil {
		h.writeVerificationError(w, err)
		return
	}
	h.writeJSON(w, executionResponse{Success: true})
}

type relayRequestBody struct {
	Relayer   common.Address `json:"relayer"`
	Data      hexutil.Bytes  `json:"data"`
	Signature hexutil.Bytes  `json:"signature"`
}

// HandleRelay serves POST /api/v1/relay: pre-signed minter call data from
// an untrusted relayer.
func (h *Handler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	var body relayRequestBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	success, ret, err := h.manager.Relay(body.Relayer, body.Data, body.Signature)
	if err != nil {
		h.writeVerificationError(w, err)
		return
	}
	h.writeJSON(w, executionResponse{Success: success, ReturnData: ret})
}

// HandleAuditTrail serves GET /api/v1/audit: the accepted relay records,
// oldest first.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.manager.AuditTrail())
}

// HandleMetadata serves GET /api/v1/metadata/{content_id} from the
// metadata storage backend.
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "metadata storage not configured", http.StatusNotFound)
		return
	}

	id, err := interfaces.NewContentIDFromHex(r.PathValue("content_id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	data, err := h.store.Fetch(r.Context(), id, interfaces.MetadataKind)
	if errors.Is(err, interfaces.ErrContentNotFound) {
		http.Error(w, "content not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("metadata fetch failed", "contentID", id, "err", err)
		http.Error(w, "metadata fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) parseTokenID(w http.ResponseWriter, r *http.Request) (interfaces.TokenID, bool) {
	idHex := r.PathValue("token_id")
	raw := common.FromHex(idHex)
	if len(raw) != common.HashLength {
		http.Error(w, "invalid token id", http.StatusBadRequest)
		return interfaces.TokenID{}, false
	}
	return common.BytesToHash(raw), true
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", "err", err)
	}
}

// writeVerificationError maps a verification failure to an HTTP status. All
// signature-family failures are the client's fault.
func (h *Handler) writeVerificationError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, interfaces.ErrSignatureInvalid),
		errors.Is(err, interfaces.ErrUnsupportedMethod),
		errors.Is(err, interfaces.ErrTokenInvalid):
	case errors.Is(err, interfaces.ErrSignerIsNotMinter):
		status = http.StatusForbidden
	default:
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}
