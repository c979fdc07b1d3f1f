// Package present renders pipeline job updates for a terminal and fans
// updates out to several presenters.
package present
