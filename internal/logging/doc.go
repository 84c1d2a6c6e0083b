// Package logging provides structured logging for mentord on top of Zap.
//
// The wrapper adds:
//   - a Trace level (-2, below Debug) used for prompt and payload dumps
//   - correlation fields pulled from context (trace_id, span_id, session.id, request.id)
//   - encoder-level secret redaction by field name and value pattern
//   - level-aware sampling where errors are never dropped
//
// # Usage
//
//	cfg, err := logging.FromAppConfig(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithSessionID(ctx, session.ID)
//	logger.Info(ctx, "pipeline completed", zap.String("topic", "Calculus"))
//
// # Secret Redaction
//
// config.Secret never prints its value. Fields named like api_key or token are
// replaced with [REDACTED], and values matching Gemini key patterns are replaced
// with [REDACTED:pattern]. Use RedactedString for anything else:
//
//	logger.Info(ctx, "agent configured", logging.Secret("api_key", cfg.Agents.APIKey))
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//	tl.AssertNoSecrets(t)
//
// Logger is safe for concurrent use.
package logging
