// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package protocol holds the small, dependency-free value types shared by
// every other package of the client: connection IDs, encryption levels,
// handshake phases, packet numbers and stream identifiers.
package protocol
