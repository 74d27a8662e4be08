// Package testinfra starts real target stores in containers for the
// integration tests of the target adapters. Everything but this file is
// built only with the integration tag:
//
//	go test -tags integration ./services/projector/internal/target/...
//
// Tests skip themselves when no Docker daemon is reachable.
package testinfra
