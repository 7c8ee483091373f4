// Command zexall drives the Z80 ZEXALL/ZEXDOC conformance ROMs against
// this module's CPU interpreter over a flat-memory CP/M harness, the
// external collaborator spec'd by the cpu package's bus contract.
package main

func main() {
	Execute()
}
