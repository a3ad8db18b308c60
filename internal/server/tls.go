package server

import "crypto/tls"

// TLSLoader is the out-of-scope external collaborator of spec.md §1/§6: it
// turns certificate/key material into a *tls.Config, the byte-stream
// adapter the server wraps accepted sockets in. Redistill ships a default
// crypto/tls-based implementation since certificate loading is ordinary
// standard-library plumbing rather than a domain concern any example
// library in the retrieval pack covers.
type TLSLoader interface {
	Load(certPath, keyPath string) (*tls.Config, error)
}

// FileTLSLoader loads a certificate/key pair from the filesystem via
// tls.LoadX509KeyPair.
type FileTLSLoader struct{}

func (FileTLSLoader) Load(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
