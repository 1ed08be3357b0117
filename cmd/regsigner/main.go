package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/hierreg/naming-registry-backend/forwarder"
	"github.com/hierreg/naming-registry-backend/interfaces"
)

var keyFlag = &cli.StringFlag{
	Name:     "key",
	Required: true,
	Usage:    "hex-encoded secp256k1 private key",
}

var dataFlag = &cli.StringFlag{
	Name:     "data",
	Required: true,
	Usage:    "hex-encoded call data",
}

func main() {
	app := &cli.App{
		Name:  "regsigner",
		Usage: "Produce signatures for the naming registry's signed surfaces",
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "generate a key pair and print it",
				Action: runKeygen,
			},
			{
				Name:  "sign-forward",
				Usage: "sign a structured forward request",
				Flags: []cli.Flag{
					keyFlag,
					dataFlag,
					&cli.Int64Flag{Name: "chain-id", Value: 1337},
					&cli.StringFlag{Name: "registry-address", Required: true},
					&cli.StringFlag{Name: "token-id", Usage: "32-byte hex token id, empty for address-scoped requests"},
					&cli.Uint64Flag{Name: "gas", Value: 100_000},
					&cli.Uint64Flag{Name: "nonce", Required: true},
				},
				Action: runSignForward,
			},
			{
				Name:  "sign-legacy",
				Usage: "sign packed call data under the legacy scheme",
				Flags: []cli.Flag{
					keyFlag,
					dataFlag,
					&cli.StringFlag{Name: "registry-address", Required: true},
					&cli.Uint64Flag{Name: "nonce", Required: true},
				},
				Action: runSignLegacy,
			},
			{
				Name:  "sign-relay",
				Usage: "sign minter call data for relaying",
				Flags: []cli.Flag{
					keyFlag,
					dataFlag,
					&cli.StringFlag{Name: "manager-address", Required: true},
				},
				Action: runSignRelay,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runKeygen(cCtx *cli.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	return printJSON(map[string]string{
		"privateKey": hexutil.Encode(crypto.FromECDSA(key)),
		"address":    crypto.PubkeyToAddress(key.PublicKey).Hex(),
	})
}

func runSignForward(cCtx *cli.Context) error {
	key, err := crypto.HexToECDSA(trim0x(cCtx.String("key")))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	data, err := hexutil.Decode(cCtx.String("data"))
	if err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}

	req := interfaces.ForwardRequest{
		From:    crypto.PubkeyToAddress(key.PublicKey),
		Gas:     cCtx.Uint64("gas"),
		TokenID: gethcommon.HexToHash(cCtx.String("token-id")),
		Nonce:   cCtx.Uint64("nonce"),
		Data:    data,
	}

	domain := forwarder.DomainSeparator(
		big.NewInt(cCtx.Int64("chain-id")),
		gethcommon.HexToAddress(cCtx.String("registry-address")),
	)
	digest := forwarder.TypedDigest(domain, req)

	sig, err := forwarder.SignDigest(digest, key)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"request":   req,
		"digest":    digest,
		"signature": hexutil.Bytes(sig),
	})
}

func runSignLegacy(cCtx *cli.Context) error {
	key, err := crypto.HexToECDSA(trim0x(cCtx.String("key")))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	data, err := hexutil.Decode(cCtx.String("data"))
	if err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}

	digest := forwarder.LegacyDigest(
		gethcommon.HexToAddress(cCtx.String("registry-address")),
		data,
		cCtx.Uint64("nonce"),
	)

	sig, err := forwarder.SignDigest(digest, key)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"signer":    crypto.PubkeyToAddress(key.PublicKey),
		"digest":    digest,
		"signature": hexutil.Bytes(sig),
	})
}

func runSignRelay(cCtx *cli.Context) error {
	key, err := crypto.HexToECDSA(trim0x(cCtx.String("key")))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	data, err := hexutil.Decode(cCtx.String("data"))
	if err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}

	digest := forwarder.RelayDigest(gethcommon.HexToAddress(cCtx.String("manager-address")), data)

	sig, err := forwarder.SignDigest(digest, key)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"signer":    crypto.PubkeyToAddress(key.PublicKey),
		"digest":    digest,
		"signature": hexutil.Bytes(sig),
	})
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
