package safety

import "regexp"

// Built-in rule tables. These are the hard boundaries that ship with the
// binary; an overlay file can extend them but never remove them.

// protectedRoots are directory prefixes that are always blocked for any
// mutating file operation. Stored normalized (lower-case, backslashes);
// see normalizePath.
var protectedRoots = []string{
	`c:\windows`,
	`c:\program files`,
	`c:\program files (x86)`,
	`c:\programdata\microsoft`,
	`c:\recovery`,
	`c:\$recycle.bin`,
	`c:\system volume information`,
	`c:\boot`,
	`c:\efi`,
	`\etc`,
	`\usr`,
	`\bin`,
	`\sbin`,
	`\lib`,
	`\boot`,
	`\system`,
	`\library`,
}

// protectedExtensions are file types blocked for mutation when the target
// sits under a system location (not everywhere — a user's own .exe in
// Documents is fair game).
var protectedExtensions = map[string]bool{
	"sys": true, "dll": true, "exe": true, "drv": true, "ocx": true,
	"cpl": true, "scr": true, "msi": true, "msp": true, "mst": true,
	"cat": true, "inf": true, "mui": true,
}

// systemExtensionRoots are the locations where protectedExtensions applies.
var systemExtensionRoots = []string{
	`c:\windows`,
	`c:\program files`,
	`c:\programdata\microsoft`,
}

// blockedCommandSubstrings hard-block a shell command when found anywhere
// in the lower-cased text. Substring, not prefix: a destructive invocation
// chained after a safe-looking one must still match.
var blockedCommandSubstrings = []string{
	"format ",
	"format.com",
	"diskpart",
	"clean all",
	`rd /s /q c:\`,
	"rd /s /q c:/",
	`rmdir /s /q c:\`,
	"rmdir /s /q c:/",
	`del /f /s /q c:\`,
	"del /f /s /q c:/",
	"cipher /w:",
	"bcdedit",
	"bcdboot",
	"bootrec",
	"reagentc",
	"dism /online /cleanup",
	"powershell -ep bypass",
	"set-executionpolicy unrestricted",
	"disable-windowsoptionalfeature",
	`reg delete hklm\system`,
	`reg delete hklm\software\microsoft`,
	`reg delete hklm\sam`,
	`reg delete hklm\security`,
	"net stop windefend",
	"sc stop windefend",
	"sc delete",
	"netsh advfirewall set allprofiles state off",
	"wmic os delete",
	"shutdown /s",
	"shutdown /r",
	"shutdown /f",
	"taskkill /f /im csrss",
	"taskkill /f /im lsass",
	"taskkill /f /im winlogon",
	"taskkill /f /im svchost",
	"taskkill /f /im smss",
	`takeown /f c:\windows`,
	`icacls c:\windows`,
	`mklink /d c:\windows`,
	"rm -rf /etc",
	"rm -rf /usr",
	"rm -rf /boot",
	"dd if=/dev/zero",
	"mkfs.",
	"> /dev/sda",
	":(){ :|:& };:",
	"chmod -r 777 /",
}

// blockedCommandPatterns catch destructive shapes that substrings cannot:
// recursive deletes rooted at a drive letter or filesystem root.
var blockedCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf?\s+/\s*$`),
	regexp.MustCompile(`rm\s+-rf?\s+~\s*$`),
	regexp.MustCompile(`del\s+/[sfq]+\s+[a-z]:\\\s*$`),
	regexp.MustCompile(`rmdir\s+/[sq]+\s+[a-z]:\\\s*$`),
	regexp.MustCompile(`remove-item\s+["']?[a-z]:\\["']?\s+-recurse`),
	regexp.MustCompile(`format\s+[a-z]:`),
	regexp.MustCompile(`(?:remove-item|del|rd|rmdir)\s+.*(?:c:\\windows|system32)`),
}

// safeCommandPrefixes are read-only commands.
var safeCommandPrefixes = []string{
	"dir ", "ls ", "type ", "cat ", "echo ", "where ", "which ", "whoami",
	"hostname", "ipconfig", "ifconfig", "systeminfo", "tasklist", "ps ",
	"wmic cpu", "wmic memorychip", "wmic diskdrive", "ver", "uname",
	"date /t", "time /t", "set ", "path", "tree ", "pwd", "df ", "du ",
	"env", "grep ", "find ", "head ", "tail ",
}

// mediumCommandPrefixes launch applications or shuffle files: allowed
// without confirmation, but not read-only.
var mediumCommandPrefixes = []string{
	"start ", "open ", "code ", "notepad", "calc", "mspaint",
	"mkdir ", "md ", "copy ", "xcopy ", "move ", "ren ", "cp ", "mv ",
	"touch ", "npm ", "pnpm ", "node ", "python ", "pip ", "go ",
	"git ", "curl ", "wget ", "make ",
}

// highCommandPrefixes mutate processes, services, registry, or network
// configuration: allowed only with explicit confirmation.
var highCommandPrefixes = []string{
	"del ", "erase ", "rmdir ", "rd ", "rm ", "taskkill ", "kill ",
	"pkill ", "net ", "netsh ", "sc ", "reg ", "powershell ", "pwsh ",
	"cmd /c", "sh -c", "bash ", "wmic ", "runas ", "sudo ", "chmod ",
	"chown ", "systemctl ", "launchctl ",
}

// criticalProcesses can never be terminated. Matched exact or with the
// .exe extension stripped.
var criticalProcesses = []string{
	"csrss.exe", "lsass.exe", "smss.exe", "wininit.exe",
	"winlogon.exe", "services.exe", "svchost.exe", "dwm.exe",
	"explorer.exe", "taskmgr.exe", "msmpeng.exe", "securityhealthservice.exe",
	"init", "systemd", "launchd", "kernel_task",
}
