package elastic

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// zapTransportLogger implements estransport.Logger on top of zap.
type zapTransportLogger struct {
	logger *zap.Logger
	bodies bool
}

func (l *zapTransportLogger) LogRoundTrip(
	req *http.Request, res *http.Response, err error, start time.Time, dur time.Duration,
) error {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Time("start", start),
		zap.Duration("duration", dur),
	}
	if res != nil {
		fields = append(fields, zap.Int("status", res.StatusCode))
	}
	if l.bodies {
		if req.Body != nil && req.Body != http.NoBody {
			fields = append(fields, zap.ByteString("request_body", drain(&req.Body)))
		}
		if res != nil && res.Body != nil && res.Body != http.NoBody {
			fields = append(fields, zap.ByteString("response_body", drain(&res.Body)))
		}
	}

	if err != nil {
		l.logger.Warn("elasticsearch round trip failed", append(fields, zap.Error(err))...)
		return nil
	}
	l.logger.Debug("elasticsearch round trip", fields...)
	return nil
}

func (l *zapTransportLogger) RequestBodyEnabled() bool  { return l.bodies }
func (l *zapTransportLogger) ResponseBodyEnabled() bool { return l.bodies }

// drain reads rc fully and replaces it with an in-memory copy.
func drain(rc *io.ReadCloser) []byte {
	b, _ := io.ReadAll(*rc)
	_ = (*rc).Close()
	*rc = io.NopCloser(bytes.NewReader(b))
	return b
}
