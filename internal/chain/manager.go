package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const defaultReceiptTimeout = 2 * time.Minute

// errPending 交易已广播但在等待时限内未取到回执
var errPending = errors.New("transaction pending")

// Backend 发送交易与等待回执所需的链接口，*ethclient.Client 即满足
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Manager 单链管理器：持有链客户端与托管钱包私钥。
// 同一私钥发出的交易共用 nonce，发送过程串行化。
type Manager struct {
	mu      sync.Mutex
	backend Backend
	client  *ethclient.Client // 仅在通过 RPC 连接时非空
	key     *ecdsa.PrivateKey
	from    common.Address
	chainId *big.Int
	cfg     config.ChainConfig
}

// NewManager 连接 RPC 节点并加载托管钱包
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	logger.Info("Creating chain client connection (id: %d, RPC: %s)", cfg.ChainId, cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	// 测试连接
	if _, err := client.BlockNumber(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed: %w", err)
	}

	chainId := big.NewInt(cfg.ChainId)
	if cfg.ChainId == 0 {
		if chainId, err = client.ChainID(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
	}

	m := newManager(client, key, chainId, cfg)
	m.client = client
	logger.Info("Successfully created chain client, escrow wallet %s", m.from.Hex())
	return m, nil
}

func newManager(backend Backend, key *ecdsa.PrivateKey, chainId *big.Int, cfg config.ChainConfig) *Manager {
	return &Manager{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainId: chainId,
		cfg:     cfg,
	}
}

// Address 托管钱包地址
func (m *Manager) Address() common.Address {
	return m.from
}

// ChainId 链ID
func (m *Manager) ChainId() *big.Int {
	return new(big.Int).Set(m.chainId)
}

// Close 关闭管理器
func (m *Manager) Close() error {
	if m.client != nil {
		m.client.Close()
	}
	logger.Info("Chain manager closed")
	return nil
}

// waitMined 等待已广播交易的回执。
// 交易一旦发出就可能上链，等待不再受请求 ctx 取消的影响，只受 ReceiptTimeout 限制；
// 超时返回 errPending，调用方按已发出处理。
func (m *Manager) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	timeout := m.cfg.ReceiptTimeout
	if timeout <= 0 {
		timeout = defaultReceiptTimeout
	}
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, m.backend, tx)
	if err != nil {
		logger.Warn("Transaction %s broadcast but receipt not available: %v", tx.Hash().Hex(), err)
		return nil, errPending
	}
	return receipt, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("no private key configured")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
