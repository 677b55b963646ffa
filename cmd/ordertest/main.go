// ordertest ставит один лимитный ордер на CoinEx с заданным плечом: проверка ключей и настроек.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"signal_bot/internal/models"
	coinex "signal_bot/internal/modules/coinex_client/service"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("ordertest", pflag.ExitOnError)
	flags.String("symbol", "BTCUSDT", "market")
	flags.Float64("price", 103000, "limit price")
	flags.String("side", "buy", "buy or sell")
	flags.Int("leverage", 20, "leverage to set before the order")
	flags.Bool("dry-run", false, "only print the order")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Service.LogLevel, cfg.Service.Name+"-ordertest")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(v, cfg, log); err != nil {
		log.Error("order test failed", zap.Error(err), zap.String("kind", models.KindOf(err).String()))
		os.Exit(1)
	}
}

func run(v *viper.Viper, cfg *config.Config, log *zap.Logger) error {
	side, err := models.ParseSide(v.GetString("side"))
	if err != nil {
		return err
	}
	symbol := v.GetString("symbol")
	price := v.GetFloat64("price")
	leverage := v.GetInt("leverage")

	amount := runner.OrderAmount(cfg.Trader.MarginUSDT, leverage, price)
	log.Info("order test",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Int("leverage", leverage),
		zap.Float64("amount", amount),
		zap.Float64("notional", runner.Notional(cfg.Trader.MarginUSDT, leverage)),
	)
	if v.GetBool("dry-run") {
		return nil
	}

	gw := coinex.NewClient(coinex.Options{
		BaseURL:    cfg.CoinEx.BaseURL,
		AccessID:   cfg.CoinEx.AccessID,
		SecretKey:  cfg.CoinEx.SecretKey,
		MarketType: cfg.CoinEx.MarketType,
		Timeout:    cfg.CoinEx.Timeout,
		Leverage:   leverage,
		MarginMode: cfg.Trader.MarginMode,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := gw.SetLeverage(ctx, symbol, leverage); err != nil {
		return err
	}
	log.Info("leverage set", zap.Int("leverage", leverage))

	order, err := gw.CreateOrder(ctx, models.OrderRequest{
		Symbol: symbol,
		Side:   side,
		Amount: amount,
		Price:  price,
	})
	if err != nil {
		return err
	}

	fmt.Printf("ID: %s\nSymbol: %s\nAmount: %v\nPrice: %v\n", order.ID, order.Symbol, order.Amount, order.Price)
	return nil
}
