package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"stakeledger/config"
	"stakeledger/core"
	"stakeledger/core/types"
	"stakeledger/crypto"
	"stakeledger/native/token"
	"stakeledger/observability/logging"
	"stakeledger/observability/metrics"
	"stakeledger/storage"
)

// Global flag values shared by every command.
var (
	ConfigPath    string
	KeystorePath  string
	PassphraseEnv string
	MetricsFile   string
)

type node struct {
	cfg         *config.Config
	db          storage.Database
	ledger      *core.Ledger
	metricsFile string
}

func (n *node) Close() {
	if n.db != nil {
		n.db.Close()
	}
}

func openNode(logOut io.Writer) (*node, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logOut, "stakectl", cfg.Environment, level)

	var db storage.Database
	switch cfg.Storage {
	case config.StorageMemory:
		db = storage.NewMemDB()
	default:
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.DataDir, err)
		}
		db = ldb
	}

	opts := []core.Option{core.WithLogger(logger)}
	program, err := cfg.Program()
	if err != nil {
		db.Close()
		return nil, err
	}
	if program != nil {
		opts = append(opts, core.WithProgramID(*program))
	}
	metricsFile := MetricsFile
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}
	if cfg.Metrics || metricsFile != "" {
		opts = append(opts, core.WithMetrics(metrics.Ledger()))
	}
	ledger, err := core.NewLedger(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("ledger opened",
		"storage", cfg.Storage,
		"slot", ledger.Slot(),
		logging.MaskField("keystore", keystorePath(cfg)),
	)
	return &node{cfg: cfg, db: db, ledger: ledger, metricsFile: metricsFile}, nil
}

func passphrase() string {
	if PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(PassphraseEnv)
}

func keystorePath(cfg *config.Config) string {
	if KeystorePath != "" {
		return KeystorePath
	}
	return cfg.KeystorePath
}

func loadSigner(cfg *config.Config) (*crypto.PrivateKey, error) {
	path := keystorePath(cfg)
	if path == "" {
		return nil, fmt.Errorf("no keystore configured; run stakectl keygen")
	}
	key, err := crypto.LoadFromKeystore(path, passphrase())
	if err != nil {
		return nil, fmt.Errorf("load keystore %s: %w", path, err)
	}
	return key, nil
}

// submit signs tx with the configured key at the signer's next nonce and
// applies it.
func submit(ctx context.Context, n *node, tx *types.Transaction) (*types.Receipt, error) {
	key, err := loadSigner(n.cfg)
	if err != nil {
		return nil, err
	}
	nonce, err := n.ledger.Nonce(key.Address())
	if err != nil {
		return nil, err
	}
	tx.Nonce = nonce
	if err := tx.Sign(key); err != nil {
		return nil, err
	}
	receipt, err := n.ledger.Apply(ctx, tx)
	if exportErr := n.exportMetrics(); exportErr != nil && err == nil {
		return nil, exportErr
	}
	return receipt, err
}

// exportMetrics writes the process metrics to the configured textfile. Failed
// transactions are exported too so rejection counters reach the collector.
func (n *node) exportMetrics() error {
	if n.metricsFile == "" {
		return nil
	}
	return metrics.WriteTextfile(n.metricsFile, prometheus.DefaultGatherer)
}

type receiptView struct {
	TxHash   string            `json:"txHash"`
	Type     string            `json:"type"`
	Signer   string            `json:"signer"`
	Slot     uint64            `json:"slot"`
	Returned string            `json:"returned,omitempty"`
	Events   []types.Event     `json:"events,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func viewReceipt(r *types.Receipt, decimals uint8) receiptView {
	view := receiptView{
		TxHash: common.Hash(r.TxHash).Hex(),
		Type:   r.Type.String(),
		Signer: r.Signer.String(),
		Slot:   r.Slot,
		Events: r.Events,
	}
	if r.Type == types.TxTypeUnstake {
		view.Returned = token.FormatUnits(r.Returned, decimals)
	}
	return view
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAddress(label, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid %s %q: %w", label, value, err)
	}
	return addr, nil
}

// parseAmount reads a human readable amount in units of mint.
func parseAmount(n *node, mint crypto.Address, value string) (uint64, uint8, error) {
	m, err := n.ledger.Mint(mint)
	if err != nil {
		return 0, 0, err
	}
	amount, err := token.ParseUnits(value, m.Decimals)
	if err != nil {
		return 0, 0, err
	}
	return amount, m.Decimals, nil
}
