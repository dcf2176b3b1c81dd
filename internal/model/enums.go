package model

type ProfileRole string

const (
	ProfileRoleFounder  ProfileRole = "founder"
	ProfileRoleInvestor ProfileRole = "investor"
)

type CodeStatus string

const (
	CodeStatusSent CodeStatus = "sent"
)
