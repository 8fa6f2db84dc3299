package nanomqtt

import "errors"

// ErrKeepAliveTimeout is returned by PollTimers when a PINGREQ went
// unanswered for a full keep-alive interval. The caller must tear down the
// transport and build a new Client to reconnect.
var ErrKeepAliveTimeout = errors.New("nanomqtt: keep-alive timed out")
