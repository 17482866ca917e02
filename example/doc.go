/*
Package main contains a command-line example for gxavior.

The example shows how to:
  - connect to an Avior matrix switch from command-line flags
  - register media callbacks (trace, state, error, receive)
  - run a matrix operation with either the blocking or the
    event-driven client
  - print the response returned by the switch
*/
package main
