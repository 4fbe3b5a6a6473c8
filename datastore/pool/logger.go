package pool

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pitabwire/util"
	glogger "gorm.io/gorm/logger"

	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/data"
)

// tint colour codes of the query attributes.
const (
	tintAttrCodeDuration = 214
	tintAttrCodeRows     = 12
	tintAttrCodeQuery    = 2
)

func datastoreLogger(ctx context.Context, cfg config.ConfigurationDatabaseTracing) glogger.Interface {
	l := &dbLogger{
		baseLogger:    util.Log(ctx),
		slowThreshold: config.DefaultSlowQueryThreshold,
	}

	if cfg != nil {
		l.slowThreshold = cfg.GetDatabaseSlowQueryLogThreshold()
		l.logQueries = cfg.CanDatabaseTraceQueries()
	}

	return l
}

// dbLogger routes gorm output to the util logger. Failed queries are always
// logged, slow ones at warn, all of them at debug or when query logging is on.
type dbLogger struct {
	baseLogger    *util.LogEntry
	logQueries    bool
	slowThreshold time.Duration
}

func (l *dbLogger) LogMode(_ glogger.LogLevel) glogger.Interface {
	return l
}

func (l *dbLogger) Info(ctx context.Context, msg string, args ...any) {
	l.baseLogger.WithContext(ctx).Info(msg, args...)
}

func (l *dbLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.baseLogger.WithContext(ctx).Warn(msg, args...)
}

func (l *dbLogger) Error(ctx context.Context, msg string, args ...any) {
	l.baseLogger.WithContext(ctx).Error(msg, args...)
}

func (l *dbLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	baseLog := l.baseLogger.WithContext(ctx)

	isSlow := l.slowThreshold != 0 && elapsed > l.slowThreshold
	isError := err != nil && !data.ErrorIsNoRows(err)
	isDebug := baseLog.Enabled(ctx, slog.LevelDebug)
	isTraced := l.logQueries && baseLog.Enabled(ctx, slog.LevelInfo)

	if !isError && !isDebug && !isTraced && !(isSlow && baseLog.Enabled(ctx, slog.LevelWarn)) {
		return
	}

	sql, rows := fc()
	log := baseLog.With(
		tint.Attr(tintAttrCodeDuration, slog.Any("duration", elapsed.String())),
		tint.Attr(tintAttrCodeRows, slog.Any("rows", strconv.FormatInt(rows, 10))),
		tint.Attr(tintAttrCodeQuery, slog.Any("query", sql)),
	)
	defer log.Release()

	if isSlow {
		log = log.WithField("slow_query", fmt.Sprintf(">= %v", l.slowThreshold))
	}

	switch {
	case isError:
		log.WithError(err).Error("query failed")
	case isDebug:
		log.Debug("query executed")
	case isTraced:
		log.Info("query executed")
	default:
		log.Warn("query is slow")
	}
}
