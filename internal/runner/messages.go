package runner

import (
	"fmt"

	"signal_bot/internal/models"
	"signal_bot/internal/notify"
)

func startMessage(s Settings) string {
	return fmt.Sprintf(
		"<b>✅ Bot Started Successfully</b>\n\n"+
			"<b>Margin:</b> $%.2f\n"+
			"<b>Leverage:</b> %dx\n"+
			"<b>Margin mode:</b> %s\n\n"+
			"Position book starts empty: positions opened before this start are not tracked.",
		s.Margin, s.Leverage, notify.Escape(string(s.MarginMode)),
	)
}

const stopMessage = "<b>🛑 Bot Stopped</b>"

func openedMessage(sig models.Signal, amount, notional float64) string {
	icon := "📈"
	if sig.Side == models.SideSell {
		icon = "📉"
	}
	return fmt.Sprintf(
		"<b>%s New Position Opened (%s)</b>\n\n"+
			"<b>Symbol:</b> %s\n"+
			"<b>Price:</b> %v\n"+
			"<b>Amount:</b> %.6f\n"+
			"<b>Value:</b> $%.2f",
		icon, upper(sig.Side), notify.Escape(sig.Symbol), sig.Price, amount, notional,
	)
}

func closedMessage(pos models.Position, price float64) string {
	return fmt.Sprintf(
		"<b>🔁 Position Closed (%s)</b>\n\n"+
			"<b>Symbol:</b> %s\n"+
			"<b>Price:</b> %v\n"+
			"<b>Amount:</b> %.6f",
		upper(pos.Side), notify.Escape(pos.Symbol), price, pos.Amount,
	)
}

func orderFailedMessage(action string, sig models.Signal, err error) string {
	return fmt.Sprintf(
		"<b>⚠️ Exchange Warning</b>\n\n"+
			"Failed to %s for signal #%d (%s %s).\n\n"+
			"<b>Error:</b>\n<code>%s</code>",
		action, sig.ID, notify.Escape(sig.Symbol), sig.Side, notify.Escape(err.Error()),
	)
}

func setupFailedMessage(symbol string, err error) string {
	return fmt.Sprintf(
		"<b>⚠️ Leverage / margin mode not applied</b>\n\n"+
			"<b>Symbol:</b> %s\nOrder placement continues.\n\n"+
			"<b>Error:</b>\n<code>%s</code>",
		notify.Escape(symbol), notify.Escape(err.Error()),
	)
}

func transitionFailedMessage(sig models.Signal, status models.Status, err error) string {
	return fmt.Sprintf(
		"<b>❌ Database Error (Trader)</b>\n\n"+
			"Signal #%d could not be marked %s, it will be retried next cycle.\n\n"+
			"<b>Error:</b>\n<code>%s</code>",
		sig.ID, status, notify.Escape(err.Error()),
	)
}

func listFailedMessage(err error) string {
	return fmt.Sprintf(
		"<b>❌ Database Error (Trader)</b>\n\n<b>Error:</b>\n<code>%s</code>",
		notify.Escape(err.Error()),
	)
}

func upper(s models.Side) string {
	if s == models.SideSell {
		return "SELL"
	}
	return "BUY"
}
