package chain

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
)

const DefaultKeypairPath = "~/.config/solana/id.json"

type Configuration struct {
	Cluster struct {
		Name       string `toml:"name"`
		RPC        string `toml:"rpc"`
		Commitment string `toml:"commitment"`
	} `toml:"cluster"`
	Identity struct {
		Keypair string `toml:"keypair"`
	} `toml:"identity"`
	Airdrop struct {
		Disabled bool   `toml:"disabled"`
		Amount   string `toml:"amount"`
		Minimum  string `toml:"minimum"`
	} `toml:"airdrop"`
	Confirm struct {
		IntervalMs    int64 `toml:"interval-ms"`
		TimeoutS      int64 `toml:"timeout-s"`
		PropagationMs int64 `toml:"propagation-ms"`
	} `toml:"confirm"`
	Messenger MessengerConfiguration `toml:"messenger"`
}

type MessengerConfiguration struct {
	ClientId       string `toml:"client-id"`
	SessionId      string `toml:"session-id"`
	PrivateKey     string `toml:"private-key"`
	PinToken       string `toml:"pin-token"`
	ConversationId string `toml:"conversation-id"`
}

// Setup reads the TOML configuration at path. A missing file yields the
// defaults so the tools run without any arguments.
func Setup(path string) (*Configuration, error) {
	var conf Configuration
	data, err := os.ReadFile(ExpandPath(path))
	if errors.Is(err, os.ErrNotExist) {
		logger.Verbosef("Setup(%s) => no configuration file, using defaults\n", path)
	} else if err != nil {
		return nil, err
	} else if err := toml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("configuration %s: %w", path, err)
	}
	conf.applyDefaults()
	return &conf, conf.validate()
}

func (conf *Configuration) applyDefaults() {
	if conf.Cluster.Name == "" {
		conf.Cluster.Name = rpc.DevNet.Name
	}
	if conf.Cluster.Commitment == "" {
		conf.Cluster.Commitment = string(rpc.CommitmentConfirmed)
	}
	if conf.Identity.Keypair == "" {
		conf.Identity.Keypair = DefaultKeypairPath
	}
	if conf.Airdrop.Amount == "" {
		conf.Airdrop.Amount = "1"
	}
	if conf.Airdrop.Minimum == "" {
		conf.Airdrop.Minimum = "0.5"
	}
	if conf.Confirm.IntervalMs <= 0 {
		conf.Confirm.IntervalMs = 500
	}
	if conf.Confirm.TimeoutS <= 0 {
		conf.Confirm.TimeoutS = 90
	}
	// a negative delay disables the wait
	if conf.Confirm.PropagationMs == 0 {
		conf.Confirm.PropagationMs = 2000
	} else if conf.Confirm.PropagationMs < 0 {
		conf.Confirm.PropagationMs = 0
	}
}

func (conf *Configuration) validate() error {
	if _, err := conf.Endpoint(); err != nil {
		return err
	}
	switch rpc.CommitmentType(conf.Cluster.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %s", conf.Cluster.Commitment)
	}
	if _, err := conf.AirdropLamports(); err != nil {
		return err
	}
	if _, err := conf.MinimumLamports(); err != nil {
		return err
	}
	return nil
}

// Endpoint resolves the RPC URL, an explicit rpc entry wins over the cluster name.
func (conf *Configuration) Endpoint() (string, error) {
	if conf.Cluster.RPC != "" {
		return conf.Cluster.RPC, nil
	}
	switch conf.Cluster.Name {
	case rpc.DevNet.Name:
		return rpc.DevNet.RPC, nil
	case rpc.TestNet.Name:
		return rpc.TestNet.RPC, nil
	case rpc.MainNetBeta.Name:
		return rpc.MainNetBeta.RPC, nil
	case rpc.LocalNet.Name:
		return rpc.LocalNet.RPC, nil
	}
	return "", fmt.Errorf("unknown cluster %s", conf.Cluster.Name)
}

func (conf *Configuration) AirdropLamports() (uint64, error) {
	return parseSOL(conf.Airdrop.Amount)
}

func (conf *Configuration) MinimumLamports() (uint64, error) {
	return parseSOL(conf.Airdrop.Minimum)
}

func (conf *Configuration) PropagationDelay() time.Duration {
	return time.Duration(conf.Confirm.PropagationMs) * time.Millisecond
}

func parseSOL(s string) (uint64, error) {
	amt, err := decimal.NewFromString(s)
	if err != nil || amt.Sign() < 0 {
		return 0, fmt.Errorf("invalid SOL amount %s", s)
	}
	lamports := amt.Shift(9)
	if !lamports.Equal(lamports.Truncate(0)) {
		return 0, fmt.Errorf("invalid SOL amount precision %s", s)
	}
	return uint64(lamports.IntPart()), nil
}

// FormatSOL renders lamports as a SOL decimal string.
func FormatSOL(lamports uint64) string {
	return decimal.NewFromInt(int64(lamports)).Shift(-9).String()
}

func ExpandPath(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	usr, err := user.Current()
	if err != nil {
		return p
	}
	return filepath.Join(usr.HomeDir, p[2:])
}
