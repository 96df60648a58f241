// Package common holds small helpers shared by the deployment services,
// currently the operator identification used for audit logging.
package common
