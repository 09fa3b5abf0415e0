/*
Package ftp implements the FTP and FTPS storage backend.

# Overview

The backend resolves ftp:// and ftps:// queries into storage objects and
runs their operations over pooled control connections. One session is
kept per endpoint (host, port and scheme), shared by every object that
points at that server and held open across operations. Transient
failures are retried with exponential backoff; replies that mean a path
is simply absent surface as storage.ErrNotExist.

Architecture

	                    ┌──────────┐
	   queries ───────▶ │ Provider │ ───────▶ storage.Object
	                    └────┬─────┘
	                         │ one per endpoint
	                 ┌───────┴───────┐
	            ┌────▼────┐     ┌────▼────┐
	            │ Session │     │ Session │   lazily dialed,
	            │ host A  │     │ host B  │   re-dialed after drops
	            └────┬────┘     └────┬────┘
	                 │               │
	              FTP / FTPS control + data connections

# Queries

A query names a server and an absolute remote path:

	ftp://ftpserver.com:21/backups/db.dump
	ftps://ftpserver.com/backups/db.dump

The port defaults to 21 for both schemes. Wildcard placeholders in the
path, such as {date}, are kept verbatim; Candidates enumerates the remote
paths a host should match them against.

# Usage

	provider, err := ftp.NewProvider(ftp.Settings{
		Username: "backups",
		Password: "hunter2",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer provider.Close()

	obj, err := provider.Object("ftp://ftpserver.com/backups/db.dump")
	if err != nil {
		log.Fatal(err)
	}
	if err := obj.Retrieve(ctx, "/var/staging/db.dump"); err != nil {
		log.Fatal(err)
	}

Directories transfer recursively in both directions, empty directories
included. Store creates missing remote parent directories first.

# Sessions and retries

An FTP control connection handles one command at a time, so each session
serializes its commands behind a mutex. Connections dial lazily on first
use; an error that puts a connection in doubt discards it and the next
command dials afresh, under the same pool entry.

Each remote command runs under the provider's retry policy. 4xx replies
and network-level failures count as transient, 5xx replies and missing
paths are final. Uploads reopen their local source on every attempt and
downloads land in a temp file that is renamed only when complete, so a
retried transfer never resends a drained reader or exposes a torn file.

# Rate limiting

The provider asks hosts to throttle it (ten requests per second unless
configured otherwise) and buckets queries by host:port, so all queries
against one server share a budget.
*/
package ftp
