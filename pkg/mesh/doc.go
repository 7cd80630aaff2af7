// Package mesh provides the mesh stack the vendor models run on.
package mesh

// The stack here is intentionally small. A Node owns a set of Elements,
// each Element owns Models, and every Model is addressed by the Element's
// unicast address. Models register a Dispatcher to receive access messages
// and use Send/Publish to originate them.
//
// Network PDUs are carried by a bearer (any PacketReadWriter). Bearers
// are treated as a broadcast medium, the same way the advertising bearer
// is: a node sees its own PDUs and PDUs for other nodes, and filters by
// destination, subscription and replay protection before dispatching.
//
// Provisioning and security are out of scope. A node is considered
// provisioned with its address, network key index and bound application
// key indexes taken from configuration, and PDUs are not encrypted.
