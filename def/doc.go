/*
	The def package contains the configuration model: containers described
	as ordered provisioning steps, volumes, and the commands that run
	inside them.

	Everything in this package is pure data.  A container definition is
	immutable once loaded; applying a step or resolving a volume is the
	business of the builder and placer packages respectively.

	The serial form accepted here is a single json document (production of
	that document from any friendlier config language is the job of an
	external parser; this package only does the typed decode).
*/
package def
