package security

import (
	"context"
	"time"

	"health-agents/internal/common/config"
	commonerrors "health-agents/internal/common/errors"
	"health-agents/internal/common/httpclient"
	"health-agents/internal/common/logger"
)

// PrecheckOutcome is a tagged result: Available=false means the oracle
// could not be consulted and callers should proceed (fail open), not
// treat the request as vetted.
type PrecheckOutcome struct {
	Available bool   `json:"available"`
	OK        bool   `json:"ok"`
	Message   string `json:"message,omitempty"`
}

// PostcheckOutcome carries the masked and encrypted forms when the
// oracle answered; both are empty when it was unavailable.
type PostcheckOutcome struct {
	Available bool   `json:"available"`
	Masked    string `json:"masked,omitempty"`
	Encrypted string `json:"encrypted,omitempty"`
}

// Oracle is the security check surface the router consults. Both the
// in-process agent and a remote deployment satisfy it.
type Oracle interface {
	Precheck(ctx context.Context, username, password, text string) PrecheckOutcome
	Postcheck(ctx context.Context, text string) PostcheckOutcome
}

// LocalOracle serves checks from the in-process agent. It is always
// available.
type LocalOracle struct {
	agent *Agent
}

func NewLocalOracle(agent *Agent) *LocalOracle {
	return &LocalOracle{agent: agent}
}

func (o *LocalOracle) Precheck(_ context.Context, username, password, text string) PrecheckOutcome {
	return o.agent.Precheck(username, password, text)
}

func (o *LocalOracle) Postcheck(_ context.Context, text string) PostcheckOutcome {
	return o.agent.Postcheck(text)
}

// HTTPOracle consults a remote security service. Transport failures make
// the outcome unavailable instead of erroring; the pipeline continues
// without the check rather than going down with the oracle.
type HTTPOracle struct {
	client   *httpclient.Client
	baseURL  string
	username string
	password string
	logger   logger.Logger
}

func NewHTTPOracle(cfg config.SecurityConfig, log logger.Logger) *HTTPOracle {
	return &HTTPOracle{
		client:   httpclient.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		logger: log.With(map[string]interface{}{
			"component": "security_oracle",
		}),
	}
}

func (o *HTTPOracle) Precheck(ctx context.Context, username, password, text string) PrecheckOutcome {
	req := map[string]string{
		"username": username,
		"password": password,
		"message":  text,
	}
	var resp struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := o.client.PostJSON(ctx, o.baseURL+"/precheck", req, &resp); err != nil {
		o.logger.Warn("precheck oracle unavailable", map[string]interface{}{
			"error": commonerrors.NewOracleUnavailableError(err).Error(),
		})
		return PrecheckOutcome{Available: false}
	}
	return PrecheckOutcome{Available: true, OK: resp.OK, Message: resp.Message}
}

func (o *HTTPOracle) Postcheck(ctx context.Context, text string) PostcheckOutcome {
	req := map[string]string{"text": text}
	var resp struct {
		Masked    string `json:"masked"`
		Encrypted string `json:"encrypted"`
	}
	if err := o.client.PostJSON(ctx, o.baseURL+"/postcheck", req, &resp); err != nil {
		o.logger.Warn("postcheck oracle unavailable", map[string]interface{}{
			"error": commonerrors.NewOracleUnavailableError(err).Error(),
		})
		return PostcheckOutcome{Available: false}
	}
	return PostcheckOutcome{Available: true, Masked: resp.Masked, Encrypted: resp.Encrypted}
}
