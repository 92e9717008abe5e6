package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

const unknownFaultMessage = "Unknown error occurred"

// Fault is an error that carries positional detail values. With two or more
// values the first is the code and the second the message; with one value it
// is the message.
type Fault struct {
	Details []any
}

// NewFault creates a Fault from positional detail values.
func NewFault(details ...any) *Fault {
	return &Fault{Details: details}
}

func (f *Fault) Error() string {
	parts := make([]string, len(f.Details))
	for i, d := range f.Details {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, ": ")
}

// TranslateFault renders err as "Error Code: {code}. Error Message: {msg}".
// A missing code renders as None.
func TranslateFault(err error) string {
	var code any
	msg := any(unknownFaultMessage)

	details := faultDetails(err)
	switch {
	case len(details) > 1:
		code, msg = details[0], details[1]
	case len(details) == 1:
		msg = details[0]
	}
	return fmt.Sprintf("Error Code: %s. Error Message: %s", detailString(code), detailString(msg))
}

// faultDetails maps transport failures onto positional (code, message) values.
func faultDetails(err error) []any {
	if err == nil {
		return nil
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Details
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return []any{int(errno), errno.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return []any{"timeout: " + err.Error()}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return []any{"dns lookup failed: " + dnsErr.Error()}
	}

	if isTLSFailure(err) {
		return []any{"tls handshake failed: " + err.Error()}
	}

	return []any{err.Error()}
}

func isTLSFailure(err error) bool {
	var (
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		authErr     x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidCert x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidCert)
}

func detailString(v any) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprint(v)
}
